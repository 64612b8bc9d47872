// Package mqtt provides MQTT client connectivity for the device service.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
// Every topic lives under a configurable prefix (default "devicesvc"):
//
//	{prefix}/status/{client_id}          retained online/offline status
//	{prefix}/event/{kind}/{id}           resource lifecycle events
//	{prefix}/announce/{protocol}         discovery announcements from devices
//	{prefix}/reading/{device}/{resource} raw readings from devices
//	{prefix}/schedule/{schedule}/{event} schedule event executions
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllReadings(), client.QoS(), ingest)
//
//	topic := client.Topics().Event("device", id)
//	err = client.PublishJSON(topic, event)
package mqtt
