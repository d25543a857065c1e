// Package pipeline runs the lane detection stages on a single frame.
//
// A frame flows through a fixed sequence of stages, each reading what the
// previous ones left on the Frame:
//
//  1. blur: Gaussian blur of the source (or of its grayscale copy)
//  2. edges: Canny with thresholds derived from the median intensity
//  3. mask: keep only edges inside the region of interest
//  4. hough: extract line segments with the probabilistic Hough transform
//  5. lanes: average segments per side and stroke them on a black canvas
//  6. blend: add the canvas onto the source frame
//
// A Pipeline holds no per-frame state and is safe for concurrent use, so
// video frames can be processed in parallel with one shared Pipeline.
package pipeline
