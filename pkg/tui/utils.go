package tui

func (m model) maskString(s string) string {
	if m.privacyMode {
		return "****"
	}
	return s
}

func (m model) maskAddress(addr string) string {
	if m.privacyMode {
		return "0x**...**"
	}
	return addr
}
