// Package grid lays out icon arrays (isotype grids) for expected frequencies.
//
// A grid holds one icon per individual in a hypothetical population. Icons
// fill left to right, top to bottom: icon i sits at row i/columns and column
// i%columns. The number of columns defaults to ceil(sqrt(population)), so a
// population of 100 gives a 10×10 square and 50 gives 8 columns with a short
// last row.
//
// [Layout] highlights a single count. [Overlay] combines a baseline and an
// exposed count into one grid: baseline icons first, then the extra exposed
// icons, or, when exposure lowers the count, baseline icons marked as
// reduced (drawn crossed out).
//
// Fractional counts are kept exact by partially filling the last affected
// icon: a count of 36.4 yields 36 full icons and one icon with Fill 0.4.
//
// Layouts are pure functions of their arguments. Calling them twice with
// the same input returns equal slices.
package grid
