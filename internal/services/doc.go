// Package services defines the closed error-kind taxonomy shared by the
// import pipeline and helpers for tagging errors with a kind. Transport
// layers translate kinds into user-facing codes at the boundary; core
// components only ever wrap and classify.
package services
