package usecase

import (
	"fmt"
	"strings"
)

// FunnelRepository records which conversations reached which step. Only the
// conversation key is stored, never the answers.
type FunnelRepository interface {
	Hit(step Step, key string) error
	Counts() map[Step]int
	// Keys lists the conversations that reached step.
	Keys(step Step) ([]string, error)
}

type FunnelUsecase struct {
	repo  FunnelRepository
	order []Step
}

func NewFunnelUsecase(repo FunnelRepository) *FunnelUsecase {
	return &FunnelUsecase{
		repo:  repo,
		order: Steps,
	}
}

func (u *FunnelUsecase) Reach(key string, step Step) error {
	if key == "" {
		return nil
	}
	return u.repo.Hit(step, key)
}

func (u *FunnelUsecase) Chart() string {
	counts := u.repo.Counts()
	if len(counts) == 0 {
		return "No funnel data yet"
	}
	// base is first step count
	var base int
	if len(u.order) > 0 {
		base = counts[u.order[0]]
	}
	if base == 0 {
		for _, s := range u.order {
			if counts[s] > base {
				base = counts[s]
			}
		}
	}
	var prev int
	var b strings.Builder
	b.WriteString("Quote chat funnel:\n")
	for i, s := range u.order {
		c := counts[s]
		relBase := percent(c, base)
		relPrev := 0
		if i == 0 {
			relPrev = 100
		} else if prev > 0 {
			relPrev = percent(c, prev)
		}
		fmt.Fprintf(&b, "- %s: %d | %3d%% of base | %3d%% of prev %s\n", StepLabel(s), c, relBase, relPrev, bar20(c, base))
		prev = c
	}
	return b.String()
}

// GraphData returns labels and values in step order for a bar chart.
func (u *FunnelUsecase) GraphData() ([]string, []int) {
	counts := u.repo.Counts()
	labels := make([]string, 0, len(u.order))
	values := make([]int, 0, len(u.order))
	for _, s := range u.order {
		labels = append(labels, StepLabel(s))
		values = append(values, counts[s])
	}
	return labels, values
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

// StepLabel names what a conversation has done by the time it reaches s.
func StepLabel(s Step) string {
	switch s {
	case StepLocation:
		return "Chat opened"
	case StepService:
		return "Location given"
	case StepContact:
		return "Service picked"
	case StepFinal:
		return "Contact given"
	case StepComplete:
		return "Completed"
	default:
		panic(fmt.Sprintf("usecase: unknown step %d", uint8(s)))
	}
}
