/*
Package session implements document management and persistence orchestration.

A Manager owns every open document of one process. It serialises access per
document id with reference-counted local mutexes, optionally coordinates with
other replicas through a DistributedLocker, and keeps loaded documents cached
between events so that edit and drag state survive across requests.
*/
package session
