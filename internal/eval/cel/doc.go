// Package cel provides a CEL (Common Expression Language) evaluator for bridge
// prefix rules.
//
// A prefix rule may carry a condition over the invoking script instead of a
// plain substring match. Two string variables are declared:
//   - invoker - the invoker path as captured by the manager
//   - script - the invoker relative to the document root, with a leading "/"
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	vars := map[string]interface{}{
//	    "invoker": "/var/www/htdocs/admin/users/edit.php",
//	    "script":  "/admin/users/edit.php",
//	}
//
//	result, err := evaluator.Evaluate(ctx, "script.startsWith('/admin/')", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	matched := result.(bool) // true
//
// Supported operations:
//   - Comparisons: ==, !=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - size
package cel
