package graph

import "reflect"

// Message is one turn of a conversation log: a system prompt, a user or
// assistant turn, or the result of a tool call. Role-specific payload
// (tool call requests, tool results) lives in higher-level packages that
// embed Message; the graph layer only needs the Role/ID/Content shape to
// implement append-merge dedup.
type Message struct {
	ID      string
	Role    string
	Content string
}

// AppendMessagesReducer concatenates update onto current like
// AppendReducer, but skips any message whose ID already appears in
// current. This is the reducer the State Model requires for a
// conversation log field: two nodes racing to append the same
// already-recorded message (a retried tool result, a re-emitted system
// message) must not duplicate it.
func AppendMessagesReducer(current, update reflect.Value) reflect.Value {
	if current.Kind() != reflect.Slice || update.Kind() != reflect.Slice {
		return update
	}
	seen := make(map[string]struct{}, current.Len())
	for i := 0; i < current.Len(); i++ {
		if id := messageID(current.Index(i)); id != "" {
			seen[id] = struct{}{}
		}
	}
	out := current
	for i := 0; i < update.Len(); i++ {
		item := update.Index(i)
		if id := messageID(item); id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = reflect.Append(out, item)
	}
	return out
}

// messageID extracts an "ID" field from v if v is a Message or embeds one;
// returns "" if v has no such field, in which case the caller falls back
// to unconditional append.
func messageID(v reflect.Value) string {
	if v.Kind() != reflect.Struct {
		return ""
	}
	f := v.FieldByName("ID")
	if !f.IsValid() || f.Kind() != reflect.String {
		return ""
	}
	return f.String()
}
