// Package llm implements agents backed by chat models through langchaingo.
//
// Any langchaingo model works (OpenAI, Ollama through its OpenAI-compatible
// endpoint, Anthropic and so on). A supervisor is an ordinary Agent whose
// system prompt lists the routable agents and asks the model to answer with
// a routing marker.
package llm
