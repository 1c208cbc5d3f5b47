// Package status interprets Cast status payloads into a cached model.
//
// Two payload kinds are understood. RECEIVER_STATUS, from the device
// channel, carries volume and the running application. MEDIA_STATUS, from
// the application channel, carries the player state and current media.
// Each kind only ever writes its own fields.
//
// Every field has a default used when its JSON source is missing, so a
// partial payload never aborts interpretation. Two absences are handled
// differently on purpose: a missing applications list clears the session,
// status text and display name, while a missing media object leaves the
// cached duration, title and artist alone.
package status
