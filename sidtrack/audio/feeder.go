package audio

// Feeder supplies PCM on demand. FeedPCM runs on the device callback thread
// and must fill buf completely in the stream's negotiated format.
type Feeder interface {
	FeedPCM(buf []byte)
}

// FeederFunc adapts a plain function to the Feeder interface.
type FeederFunc func(buf []byte)

func (f FeederFunc) FeedPCM(buf []byte) {
	f(buf)
}

// SilenceFeeder fills every buffer with the silence value of its format.
type SilenceFeeder struct {
	Format Format
}

func (s SilenceFeeder) FeedPCM(buf []byte) {
	fill(buf, s.Format.Silence())
}

func fill(buf []byte, value byte) {
	for i := range buf {
		buf[i] = value
	}
}

var (
	_ Feeder = FeederFunc(nil)
	_ Feeder = SilenceFeeder{}
	_ Feeder = (*RingFeeder)(nil)
)
