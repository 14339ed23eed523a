package producer

// Request is the single token carried on the refill-request channel. The
// channel is multi-producer (player callback, supervisor startup seed) and
// single-consumer (the producer goroutine); coalescing pending tokens is
// permitted and expected.
type Request struct{}

// Status is one of the variants the producer emits on its status channel.
type Status int

const (
	// BufferFull is sent when occupied_len exceeds the high-water mark,
	// checked before each block of a refill phase; the producer then exits
	// the phase without decoding another block.
	BufferFull Status = iota
	// BufferRecharge is sent once per block successfully pushed during a
	// refill phase.
	BufferRecharge
	// DecodingDone is sent when decode_and_mix finds every clip
	// exhausted, whether or not the ring buffer still holds unplayed
	// samples.
	DecodingDone
	// BufferUnderrun is sent by the player when the callback finds the
	// buffer empty mid-fill.
	BufferUnderrun
	// RequestData mirrors Request as a status-channel variant for
	// observability parity with spec.md's status enum. Nothing sends it on
	// the status channel: the player's low-water check signals the
	// producer with a Request on the refill-request channel instead.
	RequestData
)

func (s Status) String() string {
	switch s {
	case BufferFull:
		return "BufferFull"
	case BufferRecharge:
		return "BufferRecharge"
	case DecodingDone:
		return "DecodingDone"
	case BufferUnderrun:
		return "BufferUnderrun"
	case RequestData:
		return "RequestData"
	default:
		return "Unknown"
	}
}
