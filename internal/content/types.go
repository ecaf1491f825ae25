package content

// Module is one lesson unit as listed on the home screen.
type Module struct {
	ID          int    `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	ComingSoon  bool   `yaml:"coming_soon,omitempty" json:"coming_soon,omitempty"`
}

// Bundle is the static content a module supplies to the shared container.
type Bundle struct {
	Learn     []Section     `yaml:"learn" json:"learn"`
	Visualize Visualization `yaml:"visualize" json:"visualize"`
	Questions []Question    `yaml:"questions" json:"questions"`
}

// Section is one heading of the Learn tab.
type Section struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body,omitempty" json:"body,omitempty"`
	Items   []Item `yaml:"items,omitempty" json:"items,omitempty"`
}

// Item is a labelled entry inside a Learn section, e.g. a weekend day or a
// championship card.
type Item struct {
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	Title string `yaml:"title" json:"title"`
	Text  string `yaml:"text" json:"text"`
}

// Visualization is the bar chart shown on the Visualize tab.
type Visualization struct {
	Title   string   `yaml:"title" json:"title"`
	Intro   string   `yaml:"intro,omitempty" json:"intro,omitempty"`
	Unit    string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Max     float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Bars    []Bar    `yaml:"bars" json:"bars"`
	Callout *Callout `yaml:"callout,omitempty" json:"callout,omitempty"`
}

// Bar is a single labelled value of a Visualization.
type Bar struct {
	Label string  `yaml:"label" json:"label"`
	Value float64 `yaml:"value" json:"value"`
	Color string  `yaml:"color,omitempty" json:"color,omitempty"`
}

// Callout is the highlighted explanation box under a chart.
type Callout struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body" json:"body"`
}

// Scale returns the value bars are measured against: Max when set, otherwise
// the largest bar value.
func (v Visualization) Scale() float64 {
	if v.Max > 0 {
		return v.Max
	}
	var m float64
	for _, b := range v.Bars {
		if b.Value > m {
			m = b.Value
		}
	}
	return m
}

// Question is a multiple-choice quiz question. Exactly one option is correct.
type Question struct {
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Options     []Option `yaml:"options" json:"options"`
	Explanation string   `yaml:"explanation" json:"explanation"`
}

// Option is one answer choice of a Question.
type Option struct {
	Text    string `yaml:"text" json:"text"`
	Correct bool   `yaml:"correct" json:"correct"`
}

// CorrectIndex returns the index of the correct option, or -1 if none is
// marked. Validated content always has exactly one.
func (q Question) CorrectIndex() int {
	for i, o := range q.Options {
		if o.Correct {
			return i
		}
	}
	return -1
}

// moduleFile is the on-disk layout of a module: header fields and bundle in
// one document.
type moduleFile struct {
	Module `yaml:",inline"`
	Bundle `yaml:",inline"`
}
