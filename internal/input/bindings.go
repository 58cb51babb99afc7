package input

// Bindings groups the optional channels a locomotion controller listens to.
// A nil channel leaves that capability inert: no jump without a jump channel,
// no sprint without a sprint channel.
type Bindings struct {
	Move   *Axis2D
	Jump   *Trigger
	Sprint *Button
}

// Dispatch drains every bound channel in a fixed order. The host calls this
// once per frame, before the controller's Update, so handler-visible state is
// settled by integration time.
func (b Bindings) Dispatch() {
	if b.Move != nil {
		b.Move.Dispatch()
	}
	if b.Sprint != nil {
		b.Sprint.Dispatch()
	}
	if b.Jump != nil {
		b.Jump.Dispatch()
	}
}
