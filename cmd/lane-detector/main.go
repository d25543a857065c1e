// Package main provides the entry point for the lane-detector CLI.
//
// lane-detector finds the left and right lane lines in dashcam images and
// videos and draws them onto the frames.
//
// Usage:
//
//	lane-detector detect -i road.jpg -o annotated.jpg
//	lane-detector detect --video -i drive.mp4 -o annotated.mp4
//	lane-detector serve
//
// See --help for all available options.
package main

// main is the entry point for lane-detector.
func main() {
	Execute()
}
