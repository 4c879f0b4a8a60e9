package ports

// Observer receives advisory progress updates from the orchestrator at fixed
// pipeline checkpoints. Implementations must not influence computed results.
type Observer interface {
	OnStatus(message string)
	OnProgress(percent int)
}

// NopObserver discards all updates.
type NopObserver struct{}

func (NopObserver) OnStatus(string) {}
func (NopObserver) OnProgress(int)  {}
