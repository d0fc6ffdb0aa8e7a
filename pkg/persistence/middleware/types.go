package middleware

import "github.com/aretw0/relay/pkg/ports"

// Middleware allows wrapping a ChatMemory to add behavior.
type Middleware func(ports.ChatMemory) ports.ChatMemory

// Wrap applies mws to mem. The first middleware is the outermost, so it sees
// messages before any other on Append and last on Messages.
func Wrap(mem ports.ChatMemory, mws ...Middleware) ports.ChatMemory {
	for i := len(mws) - 1; i >= 0; i-- {
		mem = mws[i](mem)
	}
	return mem
}
