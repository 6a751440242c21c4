// Package notify delivers alert messages to the user.
//
// Delivery is fire-and-forget from the engine's point of view: the alert
// state is committed before Send is called, and a delivery failure is logged
// but never rolls the state back or fails the evaluation pass. A missed
// message costs one notification; a rolled-back state would replay alerts
// forever.
//
// Two senders are provided. CommandNotifier shells out to an external
// messaging command with a hard timeout, which covers desktop notifiers and
// chat-bridge CLIs alike. WebhookNotifier posts the message as JSON to an
// HTTP endpoint. MultiNotifier fans out to several senders and reports the
// failures together.
package notify
