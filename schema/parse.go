package schema

import (
	"encoding/json"
	"sort"
)

// ParseResult reports how a versioned payload relates to the reader's schema.
type ParseResult struct {
	// CanParse is whether the content can be meaningfully parsed at all.
	CanParse bool
	// IsPartial is whether unknown fields are present or a major gap exists.
	IsPartial bool
	// UnknownFields lists field names the reader does not recognize, sorted.
	UnknownFields []string
	// PreservedUnknownFields holds the unknown values verbatim for
	// forwarding.
	PreservedUnknownFields map[string]json.RawMessage
	// ContentReadable is whether the core "content" field is readable
	// (messaging only; the crisis-resilience rule).
	ContentReadable bool
	// InferredVersion is "1.0.0" when _v was missing, empty otherwise.
	InferredVersion string
	// UpdateRequired is whether the content's major version exceeds the
	// reader's.
	UpdateRequired bool
}

// knownFields lists the v1.0.0 field names per module. Fields outside a
// module's table are its unknown fields.
var knownFields = map[string][]string{
	"messaging": {
		"_v", "content", "replyTo", "attachments", "linkPreviews", "mentions",
		"groupId", "threadId", "emoji", "targetId", "conversationId",
		"lastRead", "readAt", "typing",
	},
	"events": {
		"_v", "id", "title", "startAt", "endAt", "description", "location",
		"createdBy", "createdAt", "updatedAt", "timezone", "allDay",
		"recurrence", "rsvpDeadline", "maxAttendees", "visibility",
		"attachments", "customFields", "linkPreviews", "virtualUrl",
	},
	"documents": {
		"_v", "id", "title", "content", "type", "createdBy", "createdAt",
		"updatedAt", "updatedBy", "version", "tags", "summary",
		"parentId", "groupId", "editors", "editPermission", "visibility",
		"attachments", "linkPreviews",
	},
}

func knownFieldsForModule(module string) map[string]struct{} {
	set := make(map[string]struct{})
	fields, ok := knownFields[module]
	if !ok {
		fields = []string{"_v"}
	}
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// ParseVersionedContent inspects a decrypted JSON payload against a module's
// schema at the reader's version:
//
//  1. Missing "_v" defaults to "1.0.0".
//  2. Same major version: parse succeeds, unknown fields preserved verbatim.
//  3. Higher major version: update required; messaging content stays
//     readable, other modules refuse to parse.
//  4. Lower major version: always parseable.
func ParseVersionedContent(content []byte, module, readerVersion string) ParseResult {
	unparseable := ParseResult{}

	reader, err := ParseVersion(readerVersion)
	if err != nil {
		return unparseable
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(content, &obj); err != nil || obj == nil {
		return unparseable
	}

	// A non-string _v falls back to the default rather than failing; only a
	// missing _v is reported as inferred.
	versionString := DefaultVersion
	inferred := DefaultVersion
	if raw, ok := obj["_v"]; ok {
		inferred = ""
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			versionString = s
		}
	}
	contentVersion, err := ParseVersion(versionString)
	if err != nil {
		return unparseable
	}

	known := knownFieldsForModule(module)
	var unknownFields []string
	preserved := make(map[string]json.RawMessage)
	for field, value := range obj {
		if _, ok := known[field]; !ok {
			unknownFields = append(unknownFields, field)
			preserved[field] = value
		}
	}
	sort.Strings(unknownFields)

	majorGap := contentVersion.Major > reader.Major
	canParse := true
	if majorGap {
		canParse = module == "messaging"
	}

	_, hasContent := obj["content"]

	return ParseResult{
		CanParse:               canParse,
		IsPartial:              len(unknownFields) > 0 || majorGap,
		UnknownFields:          unknownFields,
		PreservedUnknownFields: preserved,
		ContentReadable:        module == "messaging" && hasContent,
		InferredVersion:        inferred,
		UpdateRequired:         majorGap,
	}
}
