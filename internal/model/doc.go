// Package model defines the catalog records the equivalence pipeline reasons
// about: content items and containers, their broadcasts, and channels.
//
// Records are values. Stages receive copies and never mutate a subject or a
// candidate; Clone is provided for the few places that need to hand out a
// record with slices.
package model
