package shared

// ConfirmationPolicy specifies how executors should handle user confirmations.
type ConfirmationPolicy int

const (
	// ConfirmationPrompt indicates the executor should prompt the user.
	ConfirmationPrompt ConfirmationPolicy = iota
	// ConfirmationAssumeYes indicates the executor should continue without prompting.
	ConfirmationAssumeYes
)

// ConfirmationPolicyFromBool converts legacy boolean flags into a policy.
func ConfirmationPolicyFromBool(assumeYes bool) ConfirmationPolicy {
	if assumeYes {
		return ConfirmationAssumeYes
	}
	return ConfirmationPrompt
}

// ShouldPrompt reports whether the executor must prompt the user.
func (policy ConfirmationPolicy) ShouldPrompt() bool {
	return policy != ConfirmationAssumeYes
}

// ShouldAssumeYes reports whether prompting can be skipped.
func (policy ConfirmationPolicy) ShouldAssumeYes() bool {
	return policy == ConfirmationAssumeYes
}

// ExecutionPolicy describes whether mutating actions run or are merely planned.
type ExecutionPolicy int

const (
	// ExecutionPolicyDryRun reports planned actions without applying them.
	ExecutionPolicyDryRun ExecutionPolicy = iota
	// ExecutionPolicyApply performs mutating actions.
	ExecutionPolicyApply
)

// ExecutionPolicyFromBool converts legacy dry-run flags into a policy value.
func ExecutionPolicyFromBool(apply bool) ExecutionPolicy {
	if apply {
		return ExecutionPolicyApply
	}
	return ExecutionPolicyDryRun
}

// ShouldApply reports whether mutating actions are permitted.
func (policy ExecutionPolicy) ShouldApply() bool {
	return policy == ExecutionPolicyApply
}
