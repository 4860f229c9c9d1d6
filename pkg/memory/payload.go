package memory

// RecordFromPayload lifts the reserved keys into Record fields and keeps the rest as metadata
func RecordFromPayload(id string, p Payload) Record {
	r := Record{
		ID:        id,
		Memory:    payloadString(p, PayloadData),
		Hash:      payloadString(p, PayloadHash),
		CreatedAt: payloadString(p, PayloadCreatedAt),
		UpdatedAt: payloadString(p, PayloadUpdatedAt),
		UserID:    payloadString(p, PayloadUserID),
		AgentID:   payloadString(p, PayloadAgentID),
		RunID:     payloadString(p, PayloadRunID),
		ActorID:   payloadString(p, PayloadActorID),
		Role:      payloadString(p, PayloadRole),
	}
	for k, v := range p {
		if reservedPayloadKeys[k] {
			continue
		}
		if r.Metadata == nil {
			r.Metadata = make(map[string]any)
		}
		r.Metadata[k] = v
	}
	return r
}

// NewPayload builds the payload of a new memory. Metadata cannot shadow reserved keys.
func NewPayload(data, hash, createdAt string, metadata map[string]any, filters Filters) Payload {
	p := Payload{}
	for k, v := range metadata {
		if reservedPayloadKeys[k] {
			continue
		}
		p[k] = v
	}
	for k, v := range filters {
		p[k] = v
	}
	p[PayloadData] = data
	p[PayloadHash] = hash
	p[PayloadCreatedAt] = createdAt
	return p
}

// Clone copies the top level of the payload
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func payloadString(p Payload, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}
