// Package parse turns YAML source into annotated ir trees, one per
// document. Tags select node kinds and override flags, anchors and
// aliases become shared nodes, and strings shaped like f-string
// literals become interpolation nodes.
package parse
