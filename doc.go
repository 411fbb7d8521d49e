// Package vvrecon implements the post-reconstruction stage of a VVC
// decoder in pure Go: inverse transform and dequantization of coded
// residuals, and the deblocking filter.
//
// The caller owns the picture and its coding structure. The picture planes
// hold the prediction samples; AddResiduals adds the decoded residual of
// every transform unit and Deblock smooths the block edges in place.
// Reconstruct runs both.
//
// Supported:
//   - DCT-II (4 to 64 points), DST-VII and DCT-VIII (4 to 32 points) and
//     transform skip
//   - flat-scaling dequantization, including dependent quantization
//   - 4:0:0, 4:2:0, 4:2:2 and 4:4:4 content at 8 to 15 bits
//   - short, strong and long luma filters, chroma filtering
//   - subblock motion edges, tile, slice and virtual boundaries
//   - luma-adaptive deblocking QP offsets
//
// Basic usage:
//
//	cs := unit.NewCodingStructure(w, h, 128, picture.Chroma420, 10)
//	// ... add coding units from the syntax decoder ...
//	if err := cs.Finalize(); err != nil { ... }
//	err := vvrecon.Reconstruct(pic, cs, &vvrecon.Options{})
package vvrecon
