package pipeline_test

import (
	"testing"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/activity"
	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/pipeline/filters"
	"github.com/nikalaichik/moderator-bot/internal/registry"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newPipeline(words ...string) (*pipeline.Pipeline, *registry.Registry, *activity.Store) {
	reg := registry.New(registry.ModerationConfig{
		ForbiddenWords:        words,
		SpamMessageLimit:      3,
		SpamWindowSeconds:     10,
		SpamMuteDurationHours: 6,
	})
	store := activity.NewStore()
	return pipeline.New(reg, store, filters.Default()), reg, store
}

func msg(userID int64, text string, at time.Duration) pipeline.MessageEvent {
	return pipeline.MessageEvent{
		ChatID:    -100,
		UserID:    userID,
		Text:      text,
		Timestamp: base.Add(at),
	}
}

func TestEvaluate_SpamScenario(t *testing.T) {
	p, _, store := newPipeline()

	assert.Equal(t, pipeline.Allow(), p.Evaluate(msg(1, "a", 0)))
	assert.Equal(t, pipeline.Allow(), p.Evaluate(msg(1, "b", time.Second)))

	d := p.Evaluate(msg(1, "c", 2*time.Second))
	assert.Equal(t, pipeline.DeleteAndMute(pipeline.ReasonSpam, 6), d)
	assert.Equal(t, 6*time.Hour, d.MuteDuration())
	assert.Equal(t, 0, store.Count(-100, 1, base.Add(2*time.Second)), "window is empty right after the penalty")

	assert.Equal(t, pipeline.Allow(), p.Evaluate(msg(1, "d", 3*time.Second)))
	assert.Equal(t, 1, store.Count(-100, 1, base.Add(3*time.Second)))
}

func TestEvaluate_SpamTakesPriorityOverContent(t *testing.T) {
	p, _, _ := newPipeline("bad")

	assert.Equal(t, pipeline.DeleteOnly(pipeline.ReasonForbiddenWord), p.Evaluate(msg(1, "bad", 0)))
	assert.Equal(t, pipeline.DeleteOnly(pipeline.ReasonForbiddenWord), p.Evaluate(msg(1, "bad", time.Second)))
	assert.Equal(t, pipeline.DeleteAndMute(pipeline.ReasonSpam, 6), p.Evaluate(msg(1, "bad", 2*time.Second)))
}

func TestEvaluate_AdminAlwaysAllowed(t *testing.T) {
	p, reg, store := newPipeline("bad")
	reg.EnableNight(-100)

	for i := 0; i < 10; i++ {
		ev := msg(1, "bad https://spam.example", time.Duration(i)*time.Millisecond)
		ev.IsAdmin = true
		ev.IsForwarded = true
		ev.HasLinkEntity = true
		assert.Equal(t, pipeline.Allow(), p.Evaluate(ev))
	}
	assert.Equal(t, 0, store.Len(), "admin messages never touch the spam window")
}

func TestEvaluate_ClosedNightChatIsNotFiltered(t *testing.T) {
	p, reg, _ := newPipeline("bad")
	reg.EnableNight(-100)
	reg.SetPhase(-100, registry.PhaseClosed)

	assert.Equal(t, pipeline.Allow(), p.Evaluate(msg(1, "bad", 0)))

	reg.SetPhase(-100, registry.PhaseOpen)
	assert.Equal(t, pipeline.DeleteOnly(pipeline.ReasonForbiddenWord), p.Evaluate(msg(1, "bad", time.Second)))
}

func TestEvaluate_ContentReasons(t *testing.T) {
	tests := []struct {
		name  string
		event pipeline.MessageEvent
		want  pipeline.Decision
	}{
		{
			name:  "Clean message",
			event: msg(2, "hello there", 0),
			want:  pipeline.Allow(),
		},
		{
			name:  "Link",
			event: pipeline.MessageEvent{ChatID: -100, UserID: 2, Text: "go", HasLinkEntity: true, Timestamp: base},
			want:  pipeline.DeleteOnly(pipeline.ReasonLink),
		},
		{
			name:  "Forwarded without text",
			event: pipeline.MessageEvent{ChatID: -100, UserID: 2, IsForwarded: true, Timestamp: base},
			want:  pipeline.DeleteOnly(pipeline.ReasonForwarded),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newPipeline("bad")
			assert.Equal(t, tt.want, p.Evaluate(tt.event))
		})
	}
}

func TestEvaluate_ReloadRoundTrip(t *testing.T) {
	p, reg, _ := newPipeline()

	reg.ReplaceForbiddenWords([]string{"casino", "loan"})
	assert.Equal(t, pipeline.DeleteOnly(pipeline.ReasonForbiddenWord), p.Evaluate(msg(1, "best Casino here", 0)))

	reg.ReplaceForbiddenWords([]string{"loan"})
	assert.Equal(t, pipeline.Allow(), p.Evaluate(msg(2, "best Casino here", 0)))
}

func TestEvaluate_EditedMessages(t *testing.T) {
	p, _, store := newPipeline("casino")

	assert.Equal(t, pipeline.Allow(), p.Evaluate(msg(1, "hello", 0)))

	edit := msg(1, "hello casino", time.Second)
	edit.IsEdited = true
	assert.Equal(t, pipeline.DeleteOnly(pipeline.ReasonForbiddenWord), p.Evaluate(edit))

	edit.Text = "hello again"
	for i := 0; i < 5; i++ {
		assert.Equal(t, pipeline.Allow(), p.Evaluate(edit), "edits never trip the spam limit")
	}
	assert.Equal(t, 1, store.Count(-100, 1, base.Add(time.Second)))
}
