package email

const (
	subjectPolicyConfirmationFmt = "Your travel insurance policy %s"
)
