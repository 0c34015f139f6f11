// Package register maps pitch estimates to a binary vocal register label.
//
// [Config.Classify] is a pure threshold test: frequencies strictly below
// ThresholdHz are [Low], the rest [High]. A [Tracker] adds the one piece of
// state the label needs: it starts [Unset] and changes only on a voiced,
// in-band estimate, holding the previous label through silence, invalid
// frames and out-of-band ticks.
//
// Low and High stand in for the "male" and "female" labels of the voice
// game this logic came from; [Label.Gender] returns those names.
package register
