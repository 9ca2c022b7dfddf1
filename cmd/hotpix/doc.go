// Command hotpix is the CLI for the photo import and identity pipeline:
// batch imports, session inspection, single-photo operations, and the
// camera-card watcher.
package main
