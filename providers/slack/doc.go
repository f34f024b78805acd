// Package slack posts Block Kit messages to a Slack incoming webhook.
//
// Only the handful of block types radar sends are modeled: header, section
// with markdown text, and divider.
package slack
