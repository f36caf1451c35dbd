package journal

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

var greetings = []string{
	"Hi %s! You're 100%% awesome!",
	"Welcome back, %s! Let's make today amazing!",
	"Hi %s, let's get this day started with some positivity!",
}

// Prompts are the journal writing prompts.
var Prompts = []string{
	"Write about how you're feeling today.",
	"Reflect on a recent decision you made.",
	"Describe your favorite part of the day.",
}

// Advice is the pool of small wellbeing suggestions.
var Advice = []string{
	"Spend a few minutes today savoring a cup of tea or coffee mindfully.",
	"Write down one thing you're proud of achieving this week.",
	"Take a walk in nature and appreciate the beauty around you.",
}

// Picker draws greetings, prompts and advice at random.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a Picker. A nil source uses a randomly seeded one.
func NewPicker(src rand.Source) *Picker {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Picker{rng: rand.New(src)}
}

func (p *Picker) pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// Greeting returns a greeting addressed to name.
func (p *Picker) Greeting(name string) string {
	return fmt.Sprintf(greetings[p.pick(len(greetings))], name)
}

// Prompt returns a journal prompt.
func (p *Picker) Prompt() string {
	return Prompts[p.pick(len(Prompts))]
}

// Advice returns a piece of advice.
func (p *Picker) Advice() string {
	return Advice[p.pick(len(Advice))]
}
