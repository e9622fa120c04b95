/*
Package session serializes calls to a shard and carries its state bag across them.

A Manager holds one reference counted mutex per shard, optionally backed by a
ports.DistributedLocker so replicas sharing a StateStore also take turns. Do
loads the shard's state, hands it to the caller as a Bag and saves it back when
the caller changed it.
*/
package session
