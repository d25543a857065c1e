// Package video reads and writes frame sequences and runs a per-frame
// function over them.
//
// # Backends
//
// The backend is chosen by file extension:
//
//   - .gif is decoded and encoded in pure Go. Frames are composited onto a
//     canvas so that partial GIF frames come out as full frames.
//   - every other extension goes through the container backend. By default
//     that is an ffmpeg/ffprobe subprocess exchanging raw RGBA frames over
//     pipes. Building with the gocv tag swaps in OpenCV's VideoCapture and
//     VideoWriter.
//
// Written videos never carry an audio stream.
//
// # Processing
//
// Process reads frames lazily from a Source, applies a FrameFunc to up to
// N frames at a time and writes the results to a Sink strictly in input
// order. The first failing frame stops the run.
package video
