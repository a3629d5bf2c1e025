/*
Package session coordinates concurrent access to respondent sessions.

A Manager wraps a ports.SessionStore with per-session locking so that
read-modify-write cycles (answer, navigate, back) never interleave for the same
respondent, locally or across replicas when a DistributedLocker is configured.
*/
package session
