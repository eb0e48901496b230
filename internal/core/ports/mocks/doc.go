// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that behaves like a tiny real backend
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Accessors for inspecting recorded calls
//
// # Usage Example
//
//	func TestSave(t *testing.T) {
//		archive := mocks.NewArchive()
//		chat := mocks.NewChat()
//		chat.AddMessage(domain.Message{ChannelID: "C1", TS: "1.0", Text: "https://example.com"})
//
//		h := NewHandler(archive, chat, ...)
//		// ... drive the handler, then inspect archive.Saved() and chat.Posts()
//	}
//
// # Available Mocks
//
//   - Archive: implements ports.Archive
//   - Chat: implements ports.ChatClient
//   - Store: implements ports.SaveLog and ports.NewsletterStore
package mocks
