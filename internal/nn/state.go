package nn

// LayerState is the non-trainable state of a layer tree node. It is threaded
// through Apply explicitly and is not part of the parameters.
type LayerState struct {
	Training bool                  `cbor:"1,keyasint"`
	Seed     uint64                `cbor:"2,keyasint,omitempty"`
	Calls    uint64                `cbor:"3,keyasint,omitempty"`
	Children map[string]LayerState `cbor:"4,keyasint,omitempty"`
}

// Clone returns a deep copy of s.
func (s LayerState) Clone() LayerState {
	out := s
	if s.Children != nil {
		out.Children = make(map[string]LayerState, len(s.Children))
		for k, v := range s.Children {
			out.Children[k] = v.Clone()
		}
	}
	return out
}

// Training returns a copy of s with the training flag set on every node.
func Training(s LayerState, on bool) LayerState {
	out := s.Clone()
	setTraining(&out, on)
	return out
}

func setTraining(s *LayerState, on bool) {
	s.Training = on
	for k, c := range s.Children {
		setTraining(&c, on)
		s.Children[k] = c
	}
}
