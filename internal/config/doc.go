// Package config loads lane-detector settings from YAML files, a .env file
// and environment variables.
//
// Precedence, lowest to highest:
//
//  1. Default()
//  2. the YAML file found by FindConfigFile
//  3. environment variables (after LoadEnv has read .env)
//  4. command line flags, applied by the caller
//
// A complete file with every default looks like:
//
//	blur:
//	  kernel_size: 5
//	edges:
//	  sigma: 0.33
//	  grayscale: false
//	region: []            # [[x, y], ...]; empty means the default triangle
//	hough:
//	  rho: 1
//	  theta_degrees: 3
//	  threshold: 70
//	  min_line_length: 40
//	  max_line_gap: 50
//	  max_lines: 0
//	  seed: 4294967295
//	lanes:
//	  color: "#ff0000"
//	  thickness: 15
//	  extent:
//	    left_from: 1.0
//	    left_to: 0.55
//	    right_from: -0.55
//	    right_to: 0.45
//	blend:
//	  alpha: 0.8
//	  beta: 1.0
//	  gamma: 0
//	video:
//	  workers: 1
//	log_level: info
package config
