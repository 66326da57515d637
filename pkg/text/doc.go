// Package text measures and wraps label text.
//
// A [Context] is the measurement surface shared by the node sizer and the
// chip sizer. It parses the Go fonts on first use and caches one face per
// [Font]. When no surface is available (disabled with [WithoutSurface] or a
// font fails to parse) it falls back to a deterministic per-character width
// table, so layouts stay reproducible in headless environments.
//
//	ctx := text.NewContext()
//	w := ctx.Wrap("Authentication Service", 200, text.Font{Size: 14, Bold: true}, 20)
//	fmt.Println(w.Lines, w.Width, w.Height)
//
// Contexts are safe for concurrent use.
package text
