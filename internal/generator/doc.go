// Package generator holds the candidate generators.
//
// Broadcast locates the subject's own schedule slot and looks for the
// nearest slot on equivalent channels of every target publisher, with a
// tighter tolerance for short broadcasts. TitleSearch proposes similarly
// titled content. ContainerChildren proposes the containers that the
// subject's children are already equivalent to.
package generator
