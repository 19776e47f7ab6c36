package flow

import "fmt"

// User-facing texts. Markdown ones are sent with Markdown parse mode,
// msgAbout with HTML, the rest as plain text.
const (
	msgGreetingFmt = "*Hello %s!*\n\nTo begin, please send me a *Content Image*"

	msgHelp = "*Neural Style Transfer Bot Help Guide*\n\n" +
		"This bot lets you blend the _style_ of one image with the _content_ of another using AI.\n\n" +
		"*How to use:*\n" +
		"1. Type /start to begin.\n" +
		"2. Send a *Content Image* (what you want to stylize).\n" +
		"3. Then send a *Style Image* (the look you want to apply).\n" +
		"4. Wait a few seconds, and get your new stylized image!\n\n" +
		"*Tips:*\n" +
		"- Larger images take more time and memory.\n" +
		"- Try different combinations to get creative results.\n" +
		"- You can restart anytime by sending a new content image."

	msgAbout = "<b>About Neural Style Transfer Bot</b>\n\n" +
		"This bot uses <b>Neural Style Transfer</b> to blend the style of one image " +
		"with the content of another, creating unique artistic visuals.\n\n" +
		"Send /help to learn how to use it."

	msgGotContent    = "Nice! Now send me a *Style Image*"
	msgProcessing    = "Processing your image... Please wait ⏳"
	msgDone          = "*Done!*\n\nSend a new *Content Image* to start again!"
	msgReplacedBoth  = "New content image received! Now send me a *Style Image*"
	msgCanceled      = "Session canceled. Use /start to begin again."
	msgNothingCancel = "No active session to cancel."
)

func greeting(username string) string {
	name := username
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(msgGreetingFmt, name)
}

func domainErrorText(reason string) string {
	return fmt.Sprintf("❌ Error: %s", reason)
}

func synthesisErrorText(err error) string {
	return fmt.Sprintf("❌ Error processing image: %s", err)
}

func fetchErrorText(err error) string {
	return fmt.Sprintf("❌ Error handling image: %s", err)
}
