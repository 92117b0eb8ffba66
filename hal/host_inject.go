//go:build !tinygo

package hal

// inject queues ev without blocking. It reports false when the queue is full.
func (k *hostKeyboard) inject(ev KeyEvent) bool {
	select {
	case k.ch <- ev:
		return true
	default:
		return false
	}
}
