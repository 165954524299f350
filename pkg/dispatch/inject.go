package dispatch

// contextKeys are the side-channel payloads recognized by argument
// preparation: large binary or text blobs the caller attached to the
// batch rather than to an individual call, plus the accumulated results
// written by sequential execution.
var contextKeys = []string{"image_data", "audio_data", "transcript", "previous_results"}

// PrepareArguments merges recognized context keys into a call's arguments.
// Explicit arguments always win; context values only fill absent keys.
// This is a key-name heuristic, not a typed binding against the tool's
// declared parameters, so a handler may receive context keys it never
// declared.
func PrepareArguments(args, execCtx map[string]interface{}) map[string]interface{} {
	prepared := make(map[string]interface{}, len(args)+len(contextKeys))
	for k, v := range args {
		prepared[k] = v
	}

	for _, key := range contextKeys {
		value, ok := execCtx[key]
		if !ok {
			continue
		}
		if _, exists := prepared[key]; !exists {
			prepared[key] = value
		}
	}

	return prepared
}
