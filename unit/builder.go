package unit

// Tile appends coding units of cuSize x cuSize covering the whole picture,
// each a copy of tmpl with position, size and transform units filled in.
// Units are clipped at the picture border. Transform units follow the
// implicit split at MaxTUSize and carry no residual.
func (s *CodingStructure) Tile(cuSize int, tmpl CodingUnit) {
	for cy := 0; cy < s.CTURows(); cy++ {
		for cx := 0; cx < s.CTUCols(); cx++ {
			ctu := s.CTUArea(cy*s.CTUCols() + cx)
			for y := ctu.Y; y < ctu.Bottom(); y += cuSize {
				for x := ctu.X; x < ctu.Right(); x += cuSize {
					cu := tmpl
					cu.Area = Area{X: x, Y: y, Width: min(cuSize, ctu.Right()-x), Height: min(cuSize, ctu.Bottom()-y)}
					cu.TUs = ImplicitTUs(cu.Area)
					cu.SubMotion = nil
					s.AddCU(cu)
				}
			}
		}
	}
}

// ImplicitTUs splits area into the largest power-of-two transform units of
// at most MaxTUSize, all DCT-II without residual.
func ImplicitTUs(a Area) []TransformUnit {
	var tus []TransformUnit
	for y := a.Y; y < a.Bottom(); {
		h := largestPow2(min(a.Bottom()-y, MaxTUSize))
		for x := a.X; x < a.Right(); {
			w := largestPow2(min(a.Right()-x, MaxTUSize))
			tus = append(tus, TransformUnit{Area: Area{X: x, Y: y, Width: w, Height: h}})
			x += w
		}
		y += h
	}
	return tus
}

func largestPow2(v int) int {
	p := 1
	for p*2 <= v {
		p *= 2
	}
	return p
}
