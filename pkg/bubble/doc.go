// Package bubble places emotion bubbles on a 2D plane without overlap.
//
// A bubble is a circle labelled with an emotion name. Its diameter is derived
// from how often the emotion occurred, on a logarithmic scale:
//
//	size = BaseSize + ln(frequency+1) * ScaleFactor
//
// so a frequency of zero still yields a visible bubble of BaseSize.
//
// # Placement
//
// [Layout] sorts its input by frequency (descending, stable) and places each
// bubble on a spiral around the origin. The n-th bubble starts at angle
// n·π/2 and radius 60, then steps the angle by 0.3 radians until its circle
// clears every bubble already placed. A full revolution resets the angle to
// zero and pushes the radius out by 30. Placement is deterministic: the same
// input always produces the same positions.
//
// The search is bounded. When a bubble exhausts [WithMaxIterations] candidate
// positions, or the radius grows past [WithMaxRadius], Layout stops with an
// [*OverflowError] (matching [ErrLayoutOverflow]). With
// [WithOverflowPolicy]([PolicyBestEffort]) the bubble is kept at its last
// candidate position instead and flagged with Overflow.
//
// # Colors
//
// Geometry never touches color. [AssignColors] is a separate, deterministic
// step that walks a [Palette] round-robin in placement order.
//
// # Concurrency
//
// Layout is a pure function and safe for concurrent use. [LayoutContext]
// stops the search when its context is done. [Engine] adds last-result-wins
// semantics for callers that recompute whenever their data changes: a newer
// Submit cancels the older search and discards its result.
package bubble
