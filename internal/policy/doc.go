// Package policy decides whether a request path may be served given the
// authenticated principal, if any.
//
// Rules are evaluated in declared order and the first matching rule wins.
// A path that matches no rule requires an authenticated principal.
//
// Patterns are Ant-style: "*" matches exactly one path segment (or part of
// one, as in "*.css"), "**" matches any number of segments including none,
// and everything else is literal.
package policy
