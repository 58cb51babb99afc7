package scene

// Scene registers viewpoint transforms in order. MainViewpoint is the
// explicit fallback-resolution strategy for controllers that were not given a
// facing reference: the first registered viewpoint wins, mirroring a "main
// camera" lookup without any global state.
type Scene struct {
	viewpoints []*Transform
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) AddViewpoint(t *Transform) {
	if t == nil {
		return
	}
	for _, v := range s.viewpoints {
		if v == t {
			return
		}
	}
	s.viewpoints = append(s.viewpoints, t)
}

func (s *Scene) RemoveViewpoint(t *Transform) {
	for i, v := range s.viewpoints {
		if v == t {
			s.viewpoints = append(s.viewpoints[:i], s.viewpoints[i+1:]...)
			return
		}
	}
}

func (s *Scene) MainViewpoint() (*Transform, bool) {
	if len(s.viewpoints) == 0 {
		return nil, false
	}
	return s.viewpoints[0], true
}
