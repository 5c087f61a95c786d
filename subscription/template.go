package subscription

import "fmt"

const confirmationSubject = "Please confirm your subscription"

const confirmationTextTemplate = `Welcome to our newsletter!

Visit %s to confirm your subscription.

If you didn't sign up, you can safely ignore this email and you won't hear from us again.
`

const confirmationHTMLTemplate = `<p>Welcome to our newsletter!</p>
<p>Click <a href="%s">here</a> to confirm your subscription, or open %s directly.</p>
<p>If you didn't sign up, you can safely ignore this email and you won't hear from us again.</p>
`

func confirmationTextBody(link string) string {
	return fmt.Sprintf(confirmationTextTemplate, link)
}

func confirmationHTMLBody(link string) string {
	return fmt.Sprintf(confirmationHTMLTemplate, link, link)
}
