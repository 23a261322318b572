package snapshot

// elementsSchema is the persisted shape: an ordered array of records with an
// integer id and string type/content. Unknown type tags are accepted.
const elementsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "pagebuilder snapshot",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "type", "content"],
    "properties": {
      "id":      { "type": "integer" },
      "type":    { "type": "string" },
      "content": { "type": "string" }
    }
  }
}`
