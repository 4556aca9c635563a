// Package frame provides the small columnar and tabular library that
// snippets work with, plus the figure type produced by the plotting helper.
//
// A [Series] is a one-dimensional labeled sequence, a [Table] is a
// two-dimensional table with named columns, and a [Figure] is a chart
// description (not a rendering). All three are plain data: they serialize
// with encoding/json and CBOR and carry no references to the interpreter.
//
// Methods use json tags and lower-case method names when exposed to
// snippets, so a snippet can write:
//
//	var t = query("SELECT region, amount FROM sales")
//	output = t.aggregate("region", "amount", "sum")
package frame
