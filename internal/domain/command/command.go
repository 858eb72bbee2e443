package command

// Name identifies a command
type Name string

const (
	NamePost         Name = "post"
	NameCheckBalance Name = "check-balance"
	NameAddRow       Name = "add-row"
	NameClearAll     Name = "clear-all"
	NameResetSample  Name = "reset-sample"
	NameReload       Name = "reload"
)

// Command is an operator action addressed to the active staging handler
type Command interface {
	CommandName() Name
}

// Post runs the posting pipeline over the current staging rows
type Post struct{}

// CheckBalance checks debit/credit balance of the unposted rows
type CheckBalance struct{}

// AddRow appends an empty staging row
type AddRow struct{}

// ClearAll deletes every staging row
type ClearAll struct {
	Confirmed bool
}

// ResetSample replaces the staging rows with the sample data set
type ResetSample struct {
	Confirmed bool
}

// Reload re-reads the staging rows from storage
type Reload struct{}

func (Post) CommandName() Name         { return NamePost }
func (CheckBalance) CommandName() Name { return NameCheckBalance }
func (AddRow) CommandName() Name       { return NameAddRow }
func (ClearAll) CommandName() Name     { return NameClearAll }
func (ResetSample) CommandName() Name  { return NameResetSample }
func (Reload) CommandName() Name       { return NameReload }
