package mocks

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/lueurxax/reading-bot/internal/core/domain"
)

// Post is one message sent through the mock chat client.
type Post struct {
	ChannelID string
	ThreadTS  string
	UserID    string
	Text      string
	Ephemeral bool
}

// Response is one slash command reply sent through a response URL.
type Response struct {
	URL       string
	Text      string
	Ephemeral bool
}

// Chat is a thread-safe in-memory implementation of ports.ChatClient.
type Chat struct {
	mu        sync.RWMutex
	messages  map[string]domain.Message
	posts     []Post
	responses []Response
	seq       int

	// FetchMessageFn allows overriding FetchMessage behavior.
	FetchMessageFn func(ctx context.Context, channelID, ts string) (domain.Message, error)

	// PostMessageFn allows overriding PostMessage behavior.
	PostMessageFn func(ctx context.Context, channelID, threadTS, text string) (string, error)
}

// NewChat creates an empty mock chat client.
func NewChat() *Chat {
	return &Chat{messages: make(map[string]domain.Message)}
}

// AddMessage makes a message available to FetchMessage.
func (c *Chat) AddMessage(msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages[msg.ChannelID+"/"+msg.TS] = msg
}

// FetchMessage returns a previously added message.
func (c *Chat) FetchMessage(ctx context.Context, channelID, ts string) (domain.Message, error) {
	if c.FetchMessageFn != nil {
		return c.FetchMessageFn(ctx, channelID, ts)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	msg, ok := c.messages[channelID+"/"+ts]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %s/%s", ErrMessageNotFound, channelID, ts)
	}

	return msg, nil
}

// PostMessage records a channel or thread post.
func (c *Chat) PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error) {
	if c.PostMessageFn != nil {
		return c.PostMessageFn(ctx, channelID, threadTS, text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.posts = append(c.posts, Post{ChannelID: channelID, ThreadTS: threadTS, Text: text})

	return "9000." + strconv.Itoa(c.seq), nil
}

// PostEphemeral records an ephemeral post.
func (c *Chat) PostEphemeral(_ context.Context, channelID, userID, threadTS, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.posts = append(c.posts, Post{ChannelID: channelID, ThreadTS: threadTS, UserID: userID, Text: text, Ephemeral: true})

	return nil
}

// Respond records a response URL reply.
func (c *Chat) Respond(_ context.Context, responseURL, text string, ephemeral bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responses = append(c.responses, Response{URL: responseURL, Text: text, Ephemeral: ephemeral})

	return nil
}

// Posts returns a copy of every recorded post.
func (c *Chat) Posts() []Post {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Post(nil), c.posts...)
}

// Responses returns a copy of every recorded response URL reply.
func (c *Chat) Responses() []Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Response(nil), c.responses...)
}
