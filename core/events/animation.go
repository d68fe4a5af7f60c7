package events

const (
	// KindAnimationRequested identifies an outbound animation request.
	KindAnimationRequested Kind = "animation.requested"
	// KindAnimationBatchAppended identifies a batch appended to the playback queue.
	KindAnimationBatchAppended Kind = "animation.batch_appended"
	// KindAnimationUnitPulled identifies a unit taken out of the playback queue.
	KindAnimationUnitPulled Kind = "animation.unit_pulled"
	// KindAnimationUnitsDropped identifies units discarded by the capacity policy.
	KindAnimationUnitsDropped Kind = "animation.units_dropped"
	// KindAnimationUnitSkipped identifies a malformed unit left out of a batch.
	KindAnimationUnitSkipped Kind = "animation.unit_skipped"
)

// AnimationRequested marks text sent to the translator.
type AnimationRequested struct {
	Base
	Text string
}

// NewAnimationRequested creates an animation requested event.
func NewAnimationRequested(text string) AnimationRequested {
	return AnimationRequested{Base: NewBase(KindAnimationRequested), Text: text}
}

// AnimationBatchAppended marks a batch becoming visible to playback.
type AnimationBatchAppended struct {
	Base
	Labels     []string
	QueueDepth int
}

// NewAnimationBatchAppended creates an animation batch appended event.
func NewAnimationBatchAppended(labels []string, queueDepth int) AnimationBatchAppended {
	return AnimationBatchAppended{Base: NewBase(KindAnimationBatchAppended), Labels: labels, QueueDepth: queueDepth}
}

// AnimationUnitPulled marks a unit handed to the rendering collaborator.
type AnimationUnitPulled struct {
	Base
	Label      string
	QueueDepth int
}

// NewAnimationUnitPulled creates an animation unit pulled event.
func NewAnimationUnitPulled(label string, queueDepth int) AnimationUnitPulled {
	return AnimationUnitPulled{Base: NewBase(KindAnimationUnitPulled), Label: label, QueueDepth: queueDepth}
}

// AnimationUnitsDropped marks units discarded because the queue was full.
type AnimationUnitsDropped struct {
	Base
	Labels []string
}

// NewAnimationUnitsDropped creates an animation units dropped event.
func NewAnimationUnitsDropped(labels []string) AnimationUnitsDropped {
	return AnimationUnitsDropped{Base: NewBase(KindAnimationUnitsDropped), Labels: labels}
}

// AnimationUnitSkipped marks a malformed unit that never entered the queue.
type AnimationUnitSkipped struct {
	Base
	Reason string
}

// NewAnimationUnitSkipped creates an animation unit skipped event.
func NewAnimationUnitSkipped(reason string) AnimationUnitSkipped {
	return AnimationUnitSkipped{Base: NewBase(KindAnimationUnitSkipped), Reason: reason}
}
