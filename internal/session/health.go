package session

// Health collects the outcome of each initialization step. Failures do not
// halt the daemon; they are reported at boot and consulted before a session
// is allowed to start.
type Health struct {
	GPIO        error
	ADCLoad     error
	ADCPressure error
	Storage     error
}

// SessionsAllowed reports whether a session may start. Failed GPIO or storage
// blocks sessions; a failed ADC handshake only degrades readings, so the
// channel stays in use with undefined values.
func (h Health) SessionsAllowed() bool {
	return h.GPIO == nil && h.Storage == nil
}

// Degraded reports whether any initialization step failed.
func (h Health) Degraded() bool {
	return h.GPIO != nil || h.ADCLoad != nil || h.ADCPressure != nil || h.Storage != nil
}

// Problems returns a short description per failed step, in a fixed order.
func (h Health) Problems() []string {
	var out []string
	if h.GPIO != nil {
		out = append(out, "gpio: "+h.GPIO.Error())
	}
	if h.ADCLoad != nil {
		out = append(out, "adc load: "+h.ADCLoad.Error())
	}
	if h.ADCPressure != nil {
		out = append(out, "adc pressure: "+h.ADCPressure.Error())
	}
	if h.Storage != nil {
		out = append(out, "storage: "+h.Storage.Error())
	}
	return out
}
