package cmd

import (
	"fmt"

	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/session"
	"github.com/spf13/cobra"
)

func newEditworkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "editwork <key>",
		GroupID: groupBoard,
		Short:   "Rewrite a card's worklogs in your editor",
		Long: `Opens all worklogs of one card as a YAML buffer. Edited entries are
rewritten on the tracker; deleting an entry's block deletes the worklog.
Lines starting with "#" are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])

			col, err := runtime.worklogs(cmd.Context(), key)
			if err != nil {
				return err
			}
			snapshot := col.Current()
			if snapshot.Len() == 0 {
				infof(cmd, "%s has no worklogs", key)
				return nil
			}

			buffer, err := col.ToEditableText(snapshot.IDs())
			if err != nil {
				return err
			}

			file, err := session.NewEditFile(buffer.Text)
			if err != nil {
				return err
			}
			defer file.Release()

			if err := runtime.Editor(file.Path()); err != nil {
				return err
			}
			edited, err := file.Read()
			if err != nil {
				return err
			}

			edits, err := col.ParseEdits(edited)
			if err != nil {
				if faults.IsCategory(err, faults.ValidationError) {
					file.Retain()
					fmt.Fprintf(cmd.ErrOrStderr(), "edit rejected: %v\n", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "your edits were kept at %s\n", file.Path())
				}
				return err
			}

			// patch computation flags edits against a moved baseline and
			// tells us whether anything changed at all
			patches, err := col.ComputePatches(buffer, edits)
			if err != nil {
				if faults.IsCategory(err, faults.ConflictError) {
					file.Retain()
					fmt.Fprintln(cmd.ErrOrStderr(), "the worklogs changed while you were editing; nothing was applied")
					fmt.Fprintf(cmd.ErrOrStderr(), "your edits were kept at %s\n", file.Path())
				}
				return err
			}
			removed := snapshot.Len() - len(edits)
			if len(patches) == 0 && removed == 0 {
				infof(cmd, "no changes")
				return nil
			}

			// worklog rewrites are destructive on the tracker side, the
			// surviving entries are recreated from the edited buffer
			rewritten := 0
			for _, id := range snapshot.IDs() {
				original, _ := snapshot.Get(id)
				editedFields, keep := edits[id]

				if err := runtime.Client.Delete(cmd.Context(), resource.TypeWorklog, id); err != nil {
					return fmt.Errorf("deleting worklog %s: %w", id, err)
				}
				if !keep {
					continue
				}

				fields := original.Fields.Clone()
				for fieldKey, value := range editedFields {
					fields[fieldKey] = value
				}
				fields["card"] = key
				if _, err := runtime.Client.Create(cmd.Context(), resource.TypeWorklog, fields); err != nil {
					return fmt.Errorf("recreating worklog %s: %w", id, err)
				}
				rewritten++
			}

			if _, err := col.Reload(cmd.Context()); err != nil {
				runtime.Logger.Warn("worklog refresh after rewrite failed", "error", err)
			}
			successf(cmd, "%s: %d worklog(s) rewritten, %d deleted", key, rewritten, removed)
			return nil
		},
	}

	return cmd
}
