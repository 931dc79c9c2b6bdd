// Package llm adapts embedding and chat model providers to the siteqa
// Embedder and Completer interfaces.
package llm
