package control

type (
	// Broker holds the two queues connecting the control thread (the Model)
	// and the audio thread (the Player). Each queue has exactly one producer
	// and one consumer: ToAudio is pushed by the Model and popped by the
	// Player, ToControl the other way around.
	Broker struct {
		ToAudio   *Queue[MsgToAudio]
		ToControl *Queue[MsgToControl]
	}
)

// DefaultQueueSize is the capacity of the broker queues. A full resync of
// the patch fits in ToAudio at once.
const DefaultQueueSize = 1024

func NewBroker() *Broker {
	return NewBrokerSize(DefaultQueueSize)
}

func NewBrokerSize(size int) *Broker {
	return &Broker{
		ToAudio:   NewQueue[MsgToAudio](size),
		ToControl: NewQueue[MsgToControl](size),
	}
}
