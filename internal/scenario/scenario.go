package scenario

// Version of the timeline file format.
const Version = "1.0"

// Scenario is the timeline of one scene run
type Scenario struct {
	Version  string    `yaml:"version"`
	RunID    string    `yaml:"run_id"`
	Scene    string    `yaml:"scene"`
	FPS      int       `yaml:"fps"`
	Duration float64   `yaml:"duration"` // Total duration in seconds
	Batches  []Batch   `yaml:"batches"`
	Captions []Caption `yaml:"captions,omitempty"`
}

// Batch is one presentation: a set of effects played together, or a wait
type Batch struct {
	Index      int      `yaml:"index"`
	Kind       string   `yaml:"kind"` // "play" or "wait"
	Start      float64  `yaml:"start"`
	RunTime    float64  `yaml:"run_time"`
	Frames     int      `yaml:"frames,omitempty"`
	Effects    []Effect `yaml:"effects,omitempty"`
	Subcaption string   `yaml:"subcaption,omitempty"`
}

// Effect describes one effect of a batch, nested for groups
type Effect struct {
	Kind     string   `yaml:"kind"`
	Targets  []string `yaml:"targets,flow,omitempty"`
	RunTime  float64  `yaml:"run_time"`
	Children []Effect `yaml:"children,omitempty"`
}

// Caption is a timed subtitle cue
type Caption struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Text  string  `yaml:"text"`
}

// New returns an empty timeline.
func New(runID, sceneName string, fps int) *Scenario {
	return &Scenario{Version: Version, RunID: runID, Scene: sceneName, FPS: fps}
}

// Append adds a batch, numbering it and extending the duration.
func (s *Scenario) Append(b Batch) {
	b.Index = len(s.Batches)
	s.Batches = append(s.Batches, b)
	if end := b.Start + b.RunTime; end > s.Duration {
		s.Duration = end
	}
}

// Plays returns the number of play batches.
func (s *Scenario) Plays() int {
	n := 0
	for _, b := range s.Batches {
		if b.Kind == "play" {
			n++
		}
	}
	return n
}
